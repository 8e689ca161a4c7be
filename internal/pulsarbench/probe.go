package pulsarbench

import (
	"strings"

	"github.com/apache/pulsar-client-go/pulsar"
	"github.com/avast/retry-go"
	"github.com/pkg/errors"

	"github.com/armadaproject/pulsarbench/internal/common/benchcontext"
	"github.com/armadaproject/pulsarbench/internal/common/benchmarkerrors"
	"github.com/armadaproject/pulsarbench/internal/common/pulsarutils"
	"github.com/armadaproject/pulsarbench/internal/pulsarbench/configuration"
)

// Subscriber is the part of pulsar.Client the probe needs.
type Subscriber interface {
	Subscribe(pulsar.ConsumerOptions) (pulsar.Consumer, error)
}

// NamespaceLister lists the namespaces of a tenant, as the pulsar admin API does.
type NamespaceLister interface {
	GetNamespaces(tenant string) ([]string, error)
}

// Probe waits for a Pulsar cluster to accept subscriptions before a test starts.
type Probe struct {
	subscriber Subscriber
	namespaces NamespaceLister
	config     configuration.ProbeConfig
	tenant     string
	namespace  string
}

// NewProbe creates a probe. namespaces may be nil, in which case only the subscribe check is made.
func NewProbe(
	subscriber Subscriber,
	namespaces NamespaceLister,
	config configuration.ProbeConfig,
	tenant string,
	namespace string,
) *Probe {
	return &Probe{
		subscriber: subscriber,
		namespaces: namespaces,
		config:     config,
		tenant:     tenant,
		namespace:  namespace,
	}
}

// Wait retries the checks up to the configured number of attempts, sleeping the configured interval in between.
func (p *Probe) Wait(ctx *benchcontext.Context) error {
	topic := pulsarutils.TopicAddress(p.tenant, p.namespace, p.config.Topic)
	ctx.Log.Infof("Waiting for pulsar to accept subscriptions on %s", topic)
	err := retry.Do(
		func() error {
			return p.check(topic)
		},
		retry.Attempts(p.config.Attempts),
		retry.Delay(p.config.Interval),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			ctx.Log.WithError(err).Debugf("Pulsar not ready after attempt %d", n+1)
		}),
	)
	if err != nil {
		return errors.Wrapf(err, "pulsar not ready after %d attempts", p.config.Attempts)
	}
	ctx.Log.Info("Pulsar is ready")
	return nil
}

func (p *Probe) check(topic string) error {
	if p.namespaces != nil {
		namespaces, err := p.namespaces.GetNamespaces(p.tenant)
		if err != nil {
			return errors.WithStack(err)
		}
		if !containsNamespace(namespaces, p.tenant, p.namespace) {
			return errors.WithStack(&benchmarkerrors.ErrNotFound{
				Type:  "namespace",
				Value: p.tenant + "/" + p.namespace,
			})
		}
	}
	consumer, err := p.subscriber.Subscribe(pulsar.ConsumerOptions{
		Topic:            topic,
		SubscriptionName: p.config.Subscription,
	})
	if err != nil {
		return errors.WithStack(err)
	}
	consumer.Close()
	return nil
}

// The admin API returns namespaces qualified with their tenant.
func containsNamespace(namespaces []string, tenant, namespace string) bool {
	for _, ns := range namespaces {
		if ns == tenant+"/"+namespace || strings.TrimPrefix(ns, tenant+"/") == namespace {
			return true
		}
	}
	return false
}
