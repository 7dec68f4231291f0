package scraper

// Bots page DOM selectors
// Kept together since the service markup changes without notice

const (
	// BotsList holds one <li> per bot
	BotsList = `#botsList > li`

	// Per-bot selectors, relative to the <li>
	BotStats    = `.text-xs.text-gray-500`
	BotSettings = `select[onchange^="updateBotSetting"]`
	BotStatus   = `span.inline-flex`
)

// Status labels shown on the bots page
const (
	LabelConnected = "Terhubung"
	LabelSuspended = "Suspend"
)
