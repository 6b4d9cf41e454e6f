package match

// Player is the connected client behind a session. Names are unique per
// server and identify the player everywhere in this package.
type Player interface {
	Name() string
	SendMessage(msg string)
	SendTip(msg string)
	SendPopup(msg, subtitle string)
}
