package models

import (
	"fmt"

	"gorm.io/datatypes"
)

type ChannelType = uint8

const (
	ChannelTypeConversation = ChannelType(iota)
	ChannelTypeDirectCall
	ChannelTypeGroupTyping
)

// Channel is the persisted descriptor of a signaling channel. Membership is
// authoritative in the in-memory registry; this row exists for observability
// and survives restarts until the garbage collector reaps it.
type Channel struct {
	BaseModel

	Alias   string                    `json:"alias" gorm:"uniqueIndex"`
	Type    ChannelType               `json:"type"`
	Members datatypes.JSONSlice[uint] `json:"members"`
}

// DirectChannelID canonicalizes a pair of identities into a single channel id
// so both sides resolve the same topic regardless of who initiates.
func DirectChannelID(a, b uint) string {
	return fmt.Sprintf("conv-%d-%d", min(a, b), max(a, b))
}
