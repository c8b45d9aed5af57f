package services

import (
	"context"
	"time"

	"github.com/cadencehq/beacon/pkg/internal/models"
	jsoniter "github.com/json-iterator/go"
	"github.com/livekit/protocol/auth"
	"github.com/livekit/protocol/livekit"
	lksdk "github.com/livekit/server-sdk-go"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

var Lk *lksdk.RoomServiceClient

func SetupLiveKit() {
	host := "https://" + viper.GetString("calling.endpoint")

	Lk = lksdk.NewRoomServiceClient(
		host,
		viper.GetString("calling.api_key"),
		viper.GetString("calling.api_secret"),
	)
}

// EnsureCallRoom provisions a media room once signaling connects a call.
// The room is an optional escalation path; media still travels peer-to-peer
// by default and provisioning failures never affect the relay.
func EnsureCallRoom(call CallSnapshot) {
	if Lk == nil {
		return
	}
	_, err := Lk.CreateRoom(context.Background(), &livekit.CreateRoomRequest{
		Name:            call.Topic,
		EmptyTimeout:    viper.GetUint32("calling.empty_timeout_duration"),
		MaxParticipants: viper.GetUint32("calling.max_participants"),
	})
	if err != nil {
		log.Warn().Err(err).Str("room", call.Topic).Msg("Unable to create room at livekit side")
	}
}

func CloseCallRoom(call CallSnapshot) {
	if Lk == nil {
		return
	}
	if _, err := Lk.DeleteRoom(context.Background(), &livekit.DeleteRoomRequest{
		Room: call.Topic,
	}); err != nil {
		log.Warn().Err(err).Str("room", call.Topic).Msg("Unable to delete room at livekit side")
	}
}

func EncodeCallToken(user models.Account, call CallSnapshot) (string, error) {
	isAdmin := user.ID == call.CallerID

	grant := &auth.VideoGrant{
		Room:      call.Topic,
		RoomJoin:  true,
		RoomAdmin: isAdmin,
	}

	metadata, _ := jsoniter.Marshal(user)

	duration := time.Second * time.Duration(viper.GetInt("calling.token_duration"))
	tk := auth.NewAccessToken(viper.GetString("calling.api_key"), viper.GetString("calling.api_secret"))
	tk.AddGrant(grant).
		SetIdentity(user.Name).
		SetName(user.Nick).
		SetMetadata(string(metadata)).
		SetValidFor(duration)

	return tk.ToJWT()
}
