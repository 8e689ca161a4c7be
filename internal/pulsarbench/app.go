package pulsarbench

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/apache/pulsar-client-go/pulsar"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"k8s.io/utils/clock"

	"github.com/armadaproject/pulsarbench/internal/common/benchcontext"
	commonconfig "github.com/armadaproject/pulsarbench/internal/common/config"
	"github.com/armadaproject/pulsarbench/internal/common/health"
	"github.com/armadaproject/pulsarbench/internal/common/pulsarutils"
	"github.com/armadaproject/pulsarbench/internal/common/reactor"
	"github.com/armadaproject/pulsarbench/internal/common/serve"
	"github.com/armadaproject/pulsarbench/internal/common/task"
	"github.com/armadaproject/pulsarbench/internal/pulsarbench/configuration"
	"github.com/armadaproject/pulsarbench/internal/pulsarbench/metrics"
)

const (
	CmdRun   = "run"
	CmdProbe = "probe"
	CmdWatch = "watch"

	metricsPrefix       = "pulsarbench_"
	taskShutdownTimeout = 5 * time.Second
)

type ClientFactory func(config *commonconfig.PulsarConfig, registerer prometheus.Registerer) (pulsar.Client, error)

type Params struct {
	Config configuration.BenchConfig
	// Where metrics are registered and served from. Both default to the prometheus defaults.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
	// Defaults to pulsarutils.NewPulsarClient.
	NewClient ClientFactory
	// Defaults to the real clock.
	Clock clock.PassiveClock
}

type App struct {
	params  Params
	runId   string
	metrics *metrics.Metrics
}

func New(params Params, cmdType string) (*App, error) {
	var err error
	switch cmdType {
	case CmdRun:
		err = params.Config.Validate()
	case CmdProbe, CmdWatch:
		err = params.Config.ValidateConnection()
	default:
		err = errors.Errorf("cmdType must be one of '%s', '%s' or '%s'", CmdRun, CmdProbe, CmdWatch)
	}
	if err != nil {
		return nil, err
	}

	if params.Registerer == nil {
		params.Registerer = prometheus.DefaultRegisterer
	}
	if params.Gatherer == nil {
		params.Gatherer = prometheus.DefaultGatherer
	}
	if params.NewClient == nil {
		params.NewClient = pulsarutils.NewPulsarClient
	}
	if params.Clock == nil {
		params.Clock = clock.RealClock{}
	}

	app := &App{
		params: params,
		runId:  uuid.New().String(),
	}
	if cmdType == CmdRun {
		app.metrics = metrics.NewMetrics(metricsPrefix, params.Registerer)
	}
	return app, nil
}

func (a *App) RunId() string {
	return a.runId
}

// topic is the full address of the test topic. A topic configured as a full address is used as is.
func (a *App) topic() string {
	c := a.params.Config.Pulsar
	if _, _, _, err := pulsarutils.ParseTopicAddress(c.Topic); err == nil {
		return c.Topic
	}
	return pulsarutils.TopicAddress(c.Tenant, c.Namespace, c.Topic)
}

// Probe blocks until pulsar accepts subscriptions or the configured attempts are exhausted.
func (a *App) Probe(ctx *benchcontext.Context) error {
	config := a.params.Config
	client, err := a.params.NewClient(&config.Pulsar, a.params.Registerer)
	if err != nil {
		return err
	}
	defer client.Close()

	var namespaces NamespaceLister
	if config.Pulsar.RestURL != "" {
		admin, err := pulsarutils.NewPulsarAdminClient(&config.Pulsar)
		if err != nil {
			return err
		}
		namespaces = admin.Namespaces()
	}
	return NewProbe(client, namespaces, config.Probe, config.Pulsar.Tenant, config.Pulsar.Namespace).Wait(ctx)
}

// Watch prints the messages on the test topic, from the earliest retained message onwards.
func (a *App) Watch(ctx *benchcontext.Context, out io.Writer) error {
	client, err := a.params.NewClient(&a.params.Config.Pulsar, a.params.Registerer)
	if err != nil {
		return err
	}
	defer client.Close()

	reader, err := client.CreateReader(pulsar.ReaderOptions{
		Topic:          a.topic(),
		StartMessageID: pulsar.EarliestMessageID(),
	})
	if err != nil {
		return errors.Wrapf(err, "error creating pulsar reader")
	}
	defer reader.Close()
	return Watch(ctx, reader, out)
}

// Run executes one load test: consumers subscribe first, then the producer starts, and the run ends once every
// participant has finished or ctx is cancelled. The results are appended to the report file.
func (a *App) Run(ctx *benchcontext.Context) error {
	ctx = benchcontext.WithLogFields(ctx, logrus.Fields{"runId": a.runId, "topic": a.topic()})
	config := a.params.Config
	stopwatch := NewStopwatch(a.params.Clock)

	if config.Probe.Enabled {
		if err := a.Probe(ctx); err != nil {
			return err
		}
	}

	runCtx, cancel := benchcontext.WithCancel(ctx)
	defer cancel()

	r := reactor.New(config.ReactorThreads)
	if err := r.Start(runCtx); err != nil {
		return err
	}
	var clients []pulsar.Client
	defer func() {
		cancel()
		if err := r.Stop(); err != nil {
			ctx.Log.WithError(err).Warn("Error stopping reactor")
		}
		for _, client := range clients {
			client.Close()
		}
	}()

	if config.MetricsPort > 0 {
		serverDone := serve.ServeMetrics(runCtx, config.MetricsPort, a.params.Gatherer, health.NewMultiChecker(r))
		defer func() {
			cancel()
			<-serverDone
		}()
	}

	groups, groupClients, err := a.startConsumers(runCtx, r)
	clients = append(clients, groupClients...)
	if err != nil {
		return err
	}

	if config.StatsInterval > 0 && len(groups) > 0 {
		tasks := task.NewBackgroundTaskManager(metricsPrefix, a.params.Registerer)
		tasks.Register(runCtx, NewStatsLogger(groups, r.Pending, a.params.Clock).Log, config.StatsInterval, "stats")
		defer tasks.StopAll(taskShutdownTimeout)
	}

	defer shutdownAll(groups)
	failed := watchForFailures(groups)

	// Consumers default to the latest position, so anything produced before they subscribe would be lost.
	for _, g := range groups {
		select {
		case <-g.Subscribed():
		case <-failed:
		case <-ctx.Done():
		}
	}

	var producer *Producer
	var producerDone <-chan struct{}
	if config.Producer.Enabled && ctx.Err() == nil && !anyAborted(groups) {
		client, pulsarProducer, err := a.createProducer()
		if client != nil {
			clients = append(clients, client)
		}
		if err != nil {
			shutdownAll(groups)
			return err
		}
		defer pulsarProducer.Close()
		producer = NewProducer(pulsarProducer, config.Producer, a.params.Clock, a.metrics)
		producerDone = producer.Start(runCtx)
	}

	if !a.waitForRuntimes(ctx, failed, groups, producerDone) {
		if isClosed(failed) {
			ctx.Log.Warn("A consumer group failed; shutting down")
		} else {
			ctx.Log.Warn("Interrupted; shutting down")
		}
		cancel()
		shutdownAll(groups)
		if producerDone != nil {
			<-producerDone
		}
	}
	appTime := stopwatch.Elapsed()

	var result *multierror.Error
	report := Report{
		RunId:   a.runId,
		Config:  config,
		AppTime: appTime,
	}
	if len(groups) > 0 {
		results := make([]Result, 0, len(groups))
		for _, g := range groups {
			r, err := g.Result()
			if err != nil {
				result = multierror.Append(result, err)
				continue
			}
			results = append(results, r)
		}
		combined := CombineResults(results)
		report.Consumer = &combined
	}
	if producer != nil {
		r, err := producer.Result()
		if err != nil {
			result = multierror.Append(result, err)
		} else {
			report.Producer = &r
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		return err
	}

	if config.Report.File != "" {
		if err := WriteReport(config.Report.File, report); err != nil {
			return err
		}
		ctx.Log.Infof("Appended results to %s", config.Report.File)
	}
	ctx.Log.Infof("Done after %.3f seconds", appTime.Seconds())
	return nil
}

// startConsumers splits the subscriptions into groups of at most ConsumersPerClient, each with its own client.
func (a *App) startConsumers(ctx *benchcontext.Context, executor reactor.Executor) ([]*ConsumerGroup, []pulsar.Client, error) {
	config := a.params.Config
	var groups []*ConsumerGroup
	var clients []pulsar.Client
	groupId := 1
	for remaining := config.Consumers; remaining > 0; groupId++ {
		count := min(remaining, config.ConsumersPerClient)
		remaining -= count

		client, err := a.params.NewClient(&config.Pulsar, a.params.Registerer)
		if err != nil {
			shutdownAll(groups)
			return nil, clients, errors.WithMessagef(err, "error creating pulsar client for consumer group %d", groupId)
		}
		clients = append(clients, client)

		broker := pulsarutils.NewAsyncClient(ctx, client, executor, pulsar.ConsumerOptions{
			Type:                        pulsar.Exclusive,
			SubscriptionInitialPosition: config.SubscriptionInitialPosition,
		})
		group := NewConsumerGroup(groupId, count, a.topic(), broker, executor, a.params.Clock, a.metrics)
		group.Start(ctx)
		groups = append(groups, group)
	}
	return groups, clients, nil
}

func (a *App) createProducer() (pulsar.Client, pulsar.Producer, error) {
	config := a.params.Config
	client, err := a.params.NewClient(&config.Pulsar, a.params.Registerer)
	if err != nil {
		return nil, nil, errors.WithMessage(err, "error creating pulsar client for producer")
	}
	producerName := fmt.Sprintf("pulsarbench-%s", a.runId)
	producer, err := client.CreateProducer(pulsar.ProducerOptions{
		Name:             producerName,
		Topic:            a.topic(),
		DisableBatching:  !config.Producer.Batching,
		CompressionType:  config.Pulsar.CompressionType,
		CompressionLevel: config.Pulsar.CompressionLevel,
	})
	if err != nil {
		return client, nil, errors.Wrapf(err, "error creating pulsar producer %s", producerName)
	}
	return client, producer, nil
}

// waitForRuntimes returns false if ctx was cancelled or a consumer group failed before every runtime finished.
func (a *App) waitForRuntimes(
	ctx *benchcontext.Context,
	failed <-chan struct{},
	groups []*ConsumerGroup,
	producerDone <-chan struct{},
) bool {
	dones := make([]<-chan struct{}, 0, len(groups)+1)
	for _, g := range groups {
		dones = append(dones, g.done)
	}
	if producerDone != nil {
		dones = append(dones, producerDone)
	}
	for _, done := range dones {
		select {
		case <-done:
		case <-failed:
			return false
		case <-ctx.Done():
			return false
		}
	}
	return !isClosed(failed)
}

// watchForFailures returns a channel that is closed as soon as any of groups finishes without a result.
func watchForFailures(groups []*ConsumerGroup) <-chan struct{} {
	failed := make(chan struct{})
	var once sync.Once
	for _, g := range groups {
		g := g
		go func() {
			<-g.done
			if _, err := g.Result(); err != nil {
				once.Do(func() { close(failed) })
			}
		}()
	}
	return failed
}

func anyAborted(groups []*ConsumerGroup) bool {
	for _, g := range groups {
		if isClosed(g.done) {
			if _, err := g.Result(); err != nil {
				return true
			}
		}
	}
	return false
}

func isClosed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

func shutdownAll(groups []*ConsumerGroup) {
	for _, g := range groups {
		g.Shutdown()
	}
}
