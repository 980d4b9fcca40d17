// Package eventstreamutils builds the configured eventstream.Publisher.
package eventstreamutils

import (
	"fmt"
	"log/slog"

	"github.com/papercomputeco/thoughtwire/pkg/eventstream"
	"github.com/papercomputeco/thoughtwire/pkg/eventstream/kafka"
	"github.com/papercomputeco/thoughtwire/pkg/eventstream/nop"
)

type NewPublisherOpts struct {
	ProviderType string
	Brokers      []string
	Topic        string
	Logger       *slog.Logger
}

func NewPublisher(o *NewPublisherOpts) (eventstream.Publisher, error) {
	switch o.ProviderType {
	case "", "nop":
		return nop.NewPublisher(), nil
	case "kafka":
		p, err := kafka.NewPublisher(kafka.Config{
			Brokers: o.Brokers,
			Topic:   o.Topic,
		})
		if err != nil {
			return nil, err
		}
		o.Logger.Info("publishing persisted messages to kafka",
			"brokers", o.Brokers,
			"topic", p.Topic(),
		)
		return p, nil
	default:
		return nil, fmt.Errorf("unsupported eventstream provider: %s", o.ProviderType)
	}
}
