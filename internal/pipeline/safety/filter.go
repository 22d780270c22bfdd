// Package safety post-processes every generated reply, whichever tier
// produced it. The filter is deterministic, total and idempotent.
package safety

import "regexp"

type substitution struct {
	pattern *regexp.Regexp
	replace string
}

// The replacement strings must never themselves match any pattern in
// this table, otherwise idempotence breaks.
var substitutions = []substitution{
	// Off-platform contact channels.
	{regexp.MustCompile(`(?i)\b(call|text|phone)\s+me\b`), "message me here"},
	{regexp.MustCompile(`(?i)\bon\s+whatsapp\b`), "in the order messages"},
	{regexp.MustCompile(`(?i)\bwhatsapp\b`), "the order messages"},
	{regexp.MustCompile(`(?i)\bemail\s+me\s+directly\b`), "reach me through the order messages"},
	{regexp.MustCompile(`(?i)\bmy\s+(personal\s+)?(phone\s+)?number\s+is\s+[^\s.,;!?]+`), "you can reach me here anytime"},
	{regexp.MustCompile(`(?i)\b(outside|off)\s+(of\s+)?(the\s+)?(platform|marketplace|site)\b`), "right here"},

	// First-person fault admission.
	{regexp.MustCompile(`(?i)\b(it'?s|it\s+was|this\s+(is|was))\s+(all\s+)?(my|our)\s+fault\b`), "I'm sorry this happened"},
	{regexp.MustCompile(`(?i)\b(i|we)\s+(accept|take)\s+(full\s+)?(responsibility|the\s+blame)\b`), "I'm sorry for the trouble"},
	{regexp.MustCompile(`(?i)\b(i\s+am|we\s+are|i'?m|we'?re)\s+(fully\s+)?liable\b`), "I'm sorry for the trouble"},
	{regexp.MustCompile(`(?i)\b(my|our)\s+mistake\b`), "an oversight"},

	// Absolute-guarantee language.
	{regexp.MustCompile(`(?i)\b(i|we)\s+(personally\s+)?guarantee\b`), "I'll do everything I can to make sure"},
	{regexp.MustCompile(`(?i)\b(i|we)\s+promise\b`), "I'll do my best to make sure"},
	{regexp.MustCompile(`(?i)\b100%\s+(sure|certain|guaranteed)\b`), "confident"},
	{regexp.MustCompile(`(?i)\bdefinitely\s+will\s+arrive\b`), "should arrive"},
	{regexp.MustCompile(`(?i)\bguaranteed\s+(delivery|refund)\b`), "expected ${1}"},
}

// Filter applies the fixed substitution tables to the drafted text.
// It never fails and Filter(Filter(x)) == Filter(x).
func Filter(text string) string {
	for _, s := range substitutions {
		text = s.pattern.ReplaceAllString(text, s.replace)
	}
	return text
}
