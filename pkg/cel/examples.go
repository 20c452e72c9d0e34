package cel

// FilterExpressionExamples lists filter expressions accepted by the relay.
// They are printed by `relay-service filter-examples`.
var FilterExpressionExamples = map[string]string{
	"everything":        `true`,
	"host_equals":       `title == "nas01"`,
	"host_in_list":      `title in ["nas01", "backup"]`,
	"message_contains":  `message.contains("DEGRADED")`,
	"ignore_scrubs":     `!message.contains("Scrub of pool")`,
	"case_insensitive":  `message.lowerAscii().contains("smart")`,
	"regex_match":       `message.matches("(?i)pool .* state is (DEGRADED|FAULTED)")`,
	"priority_at_least": `priority_level >= 3`,
	"has_tag":           `"mailbox_with_mail" in tags`,
	"combined":          `title != "lab" && (message.contains("Disk") || message.contains("Pool"))`,
}
