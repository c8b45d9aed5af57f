package services

import (
	"time"

	localCache "github.com/cadencehq/beacon/pkg/internal/cache"
	"github.com/cadencehq/beacon/pkg/internal/database"
	"github.com/cadencehq/beacon/pkg/internal/models"
	"github.com/cadencehq/beacon/pkg/internal/transport"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

var (
	Sessions *SessionStore
	Channels *ChannelRegistry
	Tracker  *OutcomeTracker
	Director *CallDirector
	Statuses *StatusBroadcaster
	Out      transport.Conn
)

// Setup wires the relay components against the given transport. Called once
// at boot after configuration, database and cache are ready.
func Setup(out transport.Conn) {
	Out = out

	Sessions = NewSessionStore(time.Duration(viper.GetInt("presence.staleness_threshold")) * time.Second)
	if localCache.S != nil {
		Sessions.UseMirror(localCache.S)
	}

	Channels = NewChannelRegistry(time.Duration(viper.GetInt("channels.gc_grace")) * time.Second)
	Tracker = NewOutcomeTracker(time.Duration(viper.GetInt("tracker.retention")) * time.Second)

	Director = NewCallDirector(
		Sessions,
		Tracker,
		out,
		time.Duration(viper.GetInt("calls.ring_timeout"))*time.Second,
	)
	Director.archive = func(record models.CallRecord) {
		if err := database.C.Create(&record).Error; err != nil {
			log.Warn().Err(err).Str("call", record.CallID).Msg("Unable to archive call record...")
		}
	}
	if viper.GetBool("calling.enabled") {
		SetupLiveKit()
		Director.onConnected = EnsureCallRoom
		Director.onEnded = CloseCallRoom
	}

	Statuses = NewStatusBroadcaster(Channels, out)
}
