package solana

import "context"

// WSClient defines Solana WebSocket subscription interface.
type WSClient interface {
	// SubscribeSignature subscribes to the status of one signature at the
	// given commitment. The channel yields at most one notification and is
	// closed afterwards or when the client shuts down.
	SubscribeSignature(ctx context.Context, signature, commitment string) (<-chan SignatureNotification, error)

	// Close closes the WebSocket connection.
	Close() error
}

// SignatureNotification represents a signatureNotification message.
type SignatureNotification struct {
	Signature string
	Slot      int64
	Err       interface{}
}
