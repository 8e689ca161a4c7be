package config

import (
	"reflect"
	"strings"

	"github.com/apache/pulsar-client-go/pulsar"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/armadaproject/pulsarbench/internal/common/benchmarkerrors"
)

// CustomHooks decodes the pulsar enum types from their string form. Viper only honours a single decode hook, so
// the defaults viper would otherwise use are composed in here as well.
var CustomHooks = []viper.DecoderConfigOption{
	viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		PulsarCompressionTypeHookFunc(),
		PulsarCompressionLevelHookFunc(),
		PulsarSubscriptionPositionHookFunc(),
	)),
}

func PulsarCompressionTypeHookFunc() mapstructure.DecodeHookFuncType {
	return func(
		f reflect.Type,
		t reflect.Type,
		data interface{},
	) (interface{}, error) {
		// check that src and target types are valid
		if f.Kind() != reflect.String || t != reflect.TypeOf(pulsar.NoCompression) {
			return data, nil
		}
		return ParsePulsarCompressionType(data.(string))
	}
}

func PulsarCompressionLevelHookFunc() mapstructure.DecodeHookFuncType {
	return func(
		f reflect.Type,
		t reflect.Type,
		data interface{},
	) (interface{}, error) {
		if f.Kind() != reflect.String || t != reflect.TypeOf(pulsar.Default) {
			return data, nil
		}
		return ParsePulsarCompressionLevel(data.(string))
	}
}

func PulsarSubscriptionPositionHookFunc() mapstructure.DecodeHookFuncType {
	return func(
		f reflect.Type,
		t reflect.Type,
		data interface{},
	) (interface{}, error) {
		if f.Kind() != reflect.String || t != reflect.TypeOf(pulsar.SubscriptionPositionLatest) {
			return data, nil
		}
		return ParseSubscriptionInitialPosition(data.(string))
	}
}

// ParsePulsarCompressionType returns the pulsar.CompressionType named by s. Matching is case-insensitive and the
// empty string means no compression.
func ParsePulsarCompressionType(s string) (pulsar.CompressionType, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return pulsar.NoCompression, nil
	case "lz4":
		return pulsar.LZ4, nil
	case "zlib":
		return pulsar.ZLib, nil
	case "zstd":
		return pulsar.ZSTD, nil
	default:
		return pulsar.NoCompression, errors.WithStack(&benchmarkerrors.ErrInvalidArgument{
			Name:    "pulsar.CompressionType",
			Value:   s,
			Message: "Unknown Pulsar compression type. Valid values are none, lz4, zlib and zstd.",
		})
	}
}

// ParsePulsarCompressionLevel returns the pulsar.CompressionLevel named by s.
func ParsePulsarCompressionLevel(s string) (pulsar.CompressionLevel, error) {
	switch strings.ToLower(s) {
	case "", "default":
		return pulsar.Default, nil
	case "faster":
		return pulsar.Faster, nil
	case "better":
		return pulsar.Better, nil
	default:
		return pulsar.Default, errors.WithStack(&benchmarkerrors.ErrInvalidArgument{
			Name:    "pulsar.CompressionLevel",
			Value:   s,
			Message: "Unknown Pulsar compression level. Valid values are default, faster and better.",
		})
	}
}

// ParseSubscriptionInitialPosition returns the position new subscriptions start reading from.
func ParseSubscriptionInitialPosition(s string) (pulsar.SubscriptionInitialPosition, error) {
	switch strings.ToLower(s) {
	case "", "latest":
		return pulsar.SubscriptionPositionLatest, nil
	case "earliest":
		return pulsar.SubscriptionPositionEarliest, nil
	default:
		return pulsar.SubscriptionPositionLatest, errors.WithStack(&benchmarkerrors.ErrInvalidArgument{
			Name:    "subscriptionInitialPosition",
			Value:   s,
			Message: "Valid values are latest and earliest.",
		})
	}
}
