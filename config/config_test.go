package config

import "testing"

func TestParsePort(t *testing.T) {
	tests := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{"80", 80, false},
		{"5000", 5000, false},
		{"65535", 65535, false},
		{"1", 1, false},
		{"0", 0, true},
		{"70000", 0, true},
		{"-1", 0, true},
		{"abc", 0, true},
		{"", 0, true},
		{"80.5", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParsePort(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePort(%q) error = %v, wantErr = %v", tt.input, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("ParsePort(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidateServer(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name:    "valid thread mode",
			cfg:     Config{Port: 5000, Mode: ModeThread, MaxSessions: 10},
			wantErr: false,
		},
		{
			name:    "valid process mode",
			cfg:     Config{Port: 5000, Mode: ModeProcess, MaxSessions: 1},
			wantErr: false,
		},
		{
			name:    "no port",
			cfg:     Config{Mode: ModeThread, MaxSessions: 10},
			wantErr: true,
		},
		{
			name:    "unknown mode",
			cfg:     Config{Port: 5000, Mode: "fibers", MaxSessions: 10},
			wantErr: true,
		},
		{
			name:    "zero session cap",
			cfg:     Config{Port: 5000, Mode: ModeThread},
			wantErr: true,
		},
		{
			name:    "session child",
			cfg:     Config{SessionFD: 3},
			wantErr: false,
		},
		{
			name:    "session child stdio fd",
			cfg:     Config{SessionFD: 1},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.ValidateServer()
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateServer() error = %v, wantErr = %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateClient(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name:    "valid",
			cfg:     Config{Host: "localhost", Port: 5000},
			wantErr: false,
		},
		{
			name:    "with local port",
			cfg:     Config{Host: "localhost", Port: 5000, LocalPort: 6000},
			wantErr: false,
		},
		{
			name:    "no host",
			cfg:     Config{Port: 5000},
			wantErr: true,
		},
		{
			name:    "no port",
			cfg:     Config{Host: "localhost"},
			wantErr: true,
		},
		{
			name:    "bad local port",
			cfg:     Config{Host: "localhost", Port: 5000, LocalPort: 70000},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.ValidateClient()
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateClient() error = %v, wantErr = %v", err, tt.wantErr)
			}
		})
	}
}
