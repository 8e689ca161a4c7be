package pulsarbench

import (
	"github.com/armadaproject/pulsarbench/internal/common/pulsarutils"
)

// Consumer is the asynchronous view of one subscription.
type Consumer = pulsarutils.AsyncConsumer

// Broker opens subscriptions. *pulsarutils.AsyncClient is the production implementation.
type Broker interface {
	SubscribeAsync(topic, subscription string, callback func(Consumer, error))
}
