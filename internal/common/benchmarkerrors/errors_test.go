package benchmarkerrors

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestErrorMessages(t *testing.T) {
	tests := map[string]struct {
		err  error
		want string
	}{
		"ErrInvalidArgument": {
			err:  &ErrInvalidArgument{Name: "consumersPerClient", Value: "0"},
			want: `value "0" is invalid for field "consumersPerClient"`,
		},
		"ErrInvalidArgument with message": {
			err:  &ErrInvalidArgument{Name: "pulsar.JwtTokenPath", Value: "", Message: "required"},
			want: `value "" is invalid for field "pulsar.JwtTokenPath"; required`,
		},
		"ErrNotFound": {
			err:  &ErrNotFound{Type: "namespace", Value: "public/bench"},
			want: `resource "public/bench" of type "namespace" does not exist`,
		},
		"ErrNotFound without type": {
			err:  &ErrNotFound{Value: "probe", Message: "broker not ready"},
			want: `resource "probe" does not exist; broker not ready`,
		},
		"ErrAborted": {
			err:  &ErrAborted{Runtime: "consumer group 2"},
			want: "consumer group 2 was shut down before completing",
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.err.Error())
		})
	}
}

func TestErrSubscribeUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := errors.WithStack(&ErrSubscribe{
		Topic:        "persistent://t/ns/tp",
		Subscription: "subscriber-1-2",
		Err:          cause,
	})

	var subErr *ErrSubscribe
	assert.True(t, errors.As(err, &subErr))
	assert.Equal(t, "subscriber-1-2", subErr.Subscription)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "subscription subscriber-1-2 to persistent://t/ns/tp failed")
}
