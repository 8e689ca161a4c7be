package pulsarutils

import (
	"github.com/apache/pulsar-client-go/pulsar"

	"github.com/armadaproject/pulsarbench/internal/common/benchcontext"
	"github.com/armadaproject/pulsarbench/internal/common/reactor"
)

// AsyncConsumer is a callback-style view of a pulsar.Consumer. Callbacks are never invoked on the caller's
// goroutine; they are posted to the executor the consumer was created with.
type AsyncConsumer interface {
	ReceiveAsync(callback func(pulsar.Message, error))
	AckAsync(msg pulsar.Message, callback func(error))
	CloseAsync(callback func())
}

// AsyncClient turns the blocking subscribe/receive/ack/close calls of a pulsar.Client into asynchronous operations
// whose completions run on an executor. Each outstanding blocking call occupies its own goroutine.
type AsyncClient struct {
	ctx      *benchcontext.Context
	client   pulsar.Client
	executor reactor.Executor
	options  pulsar.ConsumerOptions
}

// NewAsyncClient wraps client. options is used as a template for every subscription; Topic and SubscriptionName
// are filled in per call. Outstanding receives are abandoned once ctx is cancelled.
func NewAsyncClient(
	ctx *benchcontext.Context,
	client pulsar.Client,
	executor reactor.Executor,
	options pulsar.ConsumerOptions,
) *AsyncClient {
	return &AsyncClient{
		ctx:      ctx,
		client:   client,
		executor: executor,
		options:  options,
	}
}

func (c *AsyncClient) SubscribeAsync(topic, subscription string, callback func(AsyncConsumer, error)) {
	options := c.options
	options.Topic = topic
	options.SubscriptionName = subscription
	go func() {
		consumer, err := c.client.Subscribe(options)
		if err != nil {
			c.post(func() { callback(nil, err) })
			return
		}
		if !c.post(func() { callback(NewAsyncConsumer(c.ctx, consumer, c.executor), nil) }) {
			consumer.Close()
		}
	}()
}

func (c *AsyncClient) post(task func()) bool {
	if !c.executor.Post(task) {
		c.ctx.Log.Debug("Executor stopped; dropping pulsar completion")
		return false
	}
	return true
}

type asyncConsumer struct {
	ctx      *benchcontext.Context
	consumer pulsar.Consumer
	executor reactor.Executor
}

func NewAsyncConsumer(ctx *benchcontext.Context, consumer pulsar.Consumer, executor reactor.Executor) AsyncConsumer {
	return &asyncConsumer{
		ctx:      ctx,
		consumer: consumer,
		executor: executor,
	}
}

func (c *asyncConsumer) ReceiveAsync(callback func(pulsar.Message, error)) {
	go func() {
		msg, err := c.consumer.Receive(c.ctx)
		c.post(func() { callback(msg, err) })
	}()
}

// Acks are batched client side so the call itself doesn't block on the broker.
func (c *asyncConsumer) AckAsync(msg pulsar.Message, callback func(error)) {
	err := c.consumer.Ack(msg)
	c.post(func() { callback(err) })
}

func (c *asyncConsumer) CloseAsync(callback func()) {
	go func() {
		c.consumer.Close()
		c.post(callback)
	}()
}

func (c *asyncConsumer) post(task func()) {
	if !c.executor.Post(task) {
		c.ctx.Log.Debug("Executor stopped; dropping pulsar completion")
	}
}
