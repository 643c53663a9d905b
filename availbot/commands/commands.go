package commands

import "github.com/disgoorg/disgo/discord"

var Commands = []discord.ApplicationCommandCreate{
	Available,
	Bump,
	Unavailable,
	Board,
	PinBoard,
	Profile,
	Profiles,
}
