package services

import (
	"sync"
	"time"

	"github.com/cadencehq/beacon/pkg/internal/database"
	"github.com/cadencehq/beacon/pkg/internal/models"
	"github.com/cadencehq/beacon/pkg/internal/transport"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm/clause"
)

type receiptKey struct {
	messageId uint
	readerId  uint
}

// StatusBroadcaster relays typing indicators and read receipts. Both bypass
// the call state machine entirely: they are stateless fire-and-forget
// publishes, loss self-corrects on the next refresh. Read receipts also
// queue a persisted row drained on a timer.
type StatusBroadcaster struct {
	registry *ChannelRegistry
	out      transport.Conn

	receiptsMu sync.Mutex
	receipts   map[receiptKey]models.ReadReceipt
}

func NewStatusBroadcaster(registry *ChannelRegistry, out transport.Conn) *StatusBroadcaster {
	return &StatusBroadcaster{
		registry: registry,
		out:      out,
		receipts: make(map[receiptKey]models.ReadReceipt),
	}
}

// canSignal checks the sender belongs to the channel. Direct pair channels
// carry their participants in the id itself; group channels consult the
// registry.
func (b *StatusBroadcaster) canSignal(channelId string, accountId uint) bool {
	if first, second, ok := ParseDirectChannelID(channelId); ok {
		return accountId == first || accountId == second
	}
	return b.registry.IsMember(channelId, accountId)
}

func (b *StatusBroadcaster) SetTypingStatus(channelId string, user models.Account, isTyping bool) error {
	if !b.canSignal(channelId, user.ID) {
		return ErrNotParticipant
	}

	envelope := models.SignalEnvelope{
		Type:      models.SignalTyping,
		SenderID:  user.ID,
		ChannelID: channelId,
		Payload: map[string]any{
			"is_typing": isTyping,
			"member":    user,
		},
		IssuedAt: time.Now(),
	}
	if err := b.out.Publish(ResolveTopic(channelId), envelope.Type, envelope); err != nil {
		log.Warn().Err(err).Str("channel", channelId).
			Msg("Transport unavailable, typing indicator dropped...")
	}
	return nil
}

func (b *StatusBroadcaster) MarkRead(channelId string, reader models.Account, messageId uint) error {
	if !b.canSignal(channelId, reader.ID) {
		return ErrNotParticipant
	}

	now := time.Now()
	envelope := models.SignalEnvelope{
		Type:      models.SignalReadReceipt,
		SenderID:  reader.ID,
		ChannelID: channelId,
		Payload: map[string]any{
			"message_id": messageId,
		},
		IssuedAt: now,
	}
	if err := b.out.Publish(ResolveTopic(channelId), envelope.Type, envelope); err != nil {
		log.Warn().Err(err).Str("channel", channelId).
			Msg("Transport unavailable, read receipt dropped...")
	}

	b.receiptsMu.Lock()
	b.receipts[receiptKey{messageId: messageId, readerId: reader.ID}] = models.ReadReceipt{
		MessageID: messageId,
		ReaderID:  reader.ID,
		ChannelID: channelId,
		ReadAt:    now,
	}
	b.receiptsMu.Unlock()

	return nil
}

// FlushReadReceipts drains queued receipts into the database. Duplicate
// marks are absorbed by the unique index.
func (b *StatusBroadcaster) FlushReadReceipts() {
	b.receiptsMu.Lock()
	if len(b.receipts) == 0 {
		b.receiptsMu.Unlock()
		return
	}
	batch := make([]models.ReadReceipt, 0, len(b.receipts))
	for _, receipt := range b.receipts {
		batch = append(batch, receipt)
	}
	clear(b.receipts)
	b.receiptsMu.Unlock()

	if err := database.C.Clauses(clause.OnConflict{
		DoNothing: true,
	}).Create(&batch).Error; err != nil {
		log.Error().Err(err).Msg("An error occurred when flushing read receipts...")
	}
}
