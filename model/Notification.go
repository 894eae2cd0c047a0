package model

import (
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
)

type NotificationType string

const (
	NotificationTipChanged NotificationType = "tip_changed"
)

// TipNotification is published every time the canonical tip moves.
// ForkHeight is the height of the parent the update was applied on.
type TipNotification struct {
	Type        NotificationType `json:"type"`
	Height      uint32           `json:"height"`
	Hash        *chainhash.Hash  `json:"hash"`
	Bits        NBit             `json:"bits"`
	ForkHeight  uint32           `json:"forkHeight"`
	SubmitterID string           `json:"submitterId"`
	Timestamp   int64            `json:"timestamp"`
}
