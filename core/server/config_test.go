package server_test

import (
	"testing"

	"disc3d-batch/core/server"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Address(t *testing.T) {
	tests := []struct {
		name string
		cfg  server.Config
		want string
	}{
		{"All Interfaces", server.Config{Port: "8080"}, ":8080"},
		{"Loopback", server.Config{Host: "127.0.0.1", Port: "9000"}, "127.0.0.1:9000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.Address())
		})
	}
}
