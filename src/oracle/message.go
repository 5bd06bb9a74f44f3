package oracle

import (
	"github.com/NaeuralEdgeProtocol/oraclesync/src/common"
	"github.com/NaeuralEdgeProtocol/oraclesync/src/consensus"
	"github.com/NaeuralEdgeProtocol/oraclesync/src/signer"
)

// EpochTable is the AgreedTable committed for one epoch.
type EpochTable struct {
	Epoch uint64                `codec:"EPOCH"`
	Table consensus.AgreedTable `codec:"AGREED_MEDIAN_TABLE"`
}

// Message is the envelope broadcast between oracles. Only the fields of the
// sender's stage are set. Epoch is the epoch under agreement for round
// messages, and the sender's current epoch for catch-up messages.
type Message struct {
	Stage Stage  `codec:"STAGE"`
	Epoch uint64 `codec:"EPOCH"`

	// S2. Nil when the sender does not participate.
	LocalTable consensus.LocalTable `codec:"LOCAL_TABLE"`

	// S4
	MedianTable consensus.MedianTable `codec:"MEDIAN_TABLE"`

	// S6
	AgreedMedianTable consensus.AgreedTable `codec:"AGREED_MEDIAN_TABLE"`

	// S8
	RequestAgreedMedianTable bool   `codec:"REQUEST_AGREED_MEDIAN_TABLE,omitempty"`
	StartEpoch               uint64 `codec:"START_EPOCH,omitempty"`
	EndEpoch                 uint64 `codec:"END_EPOCH,omitempty"`

	// S0. An empty answer is omitted, like an absent one.
	EpochAgreedMedianTable []EpochTable `codec:"EPOCH__AGREED_MEDIAN_TABLE,omitempty"`

	Signature signer.Signature `codec:"EE_SIGN"`
}

// Sender is the address of the oracle that signed the message.
func (m *Message) Sender() string {
	return m.Signature.Signer
}

// SigningBytes implements signer.Payload. The signature covers every other
// field.
func (m *Message) SigningBytes() ([]byte, error) {
	body := *m
	body.Signature = signer.Signature{}
	return common.EncodeCanonical(&body)
}

// GetSignature implements signer.Payload.
func (m *Message) GetSignature() signer.Signature {
	return m.Signature
}

// SetSignature implements signer.Payload.
func (m *Message) SetSignature(s signer.Signature) {
	m.Signature = s
}

// Marshal ...
func (m *Message) Marshal() ([]byte, error) {
	return common.EncodeCanonical(m)
}

// Unmarshal ...
func (m *Message) Unmarshal(data []byte) error {
	return common.DecodeCanonical(data, m)
}
