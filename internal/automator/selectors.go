package automator

// Bots page selectors.
// Isolated here because the service changes its markup; update when linking breaks.
const (
	AddBotButton  = `#addBotBtn`
	PairingMethod = `input[name="connectionMethod"][value="pairing"]`
	PhoneInput    = `#phoneNumber`
	AddBotSubmit  = `#addBotSubmit`
)
