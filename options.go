package vstbridge

import (
	"log/slog"
	"time"

	"gosuda.org/vstbridge/abi"
)

// Default configuration
const (
	DefaultControlFrameSize  = 65536
	DefaultCallbackFrameSize = 1024
	DefaultHandshakeTimeout  = 3 * time.Second
	DefaultPollInterval      = 20 * time.Millisecond
	DefaultShutdownTimeout   = 3 * time.Second

	DefaultWorkerPollInterval = 10 * time.Millisecond
	DefaultAudioPollInterval  = 50 * time.Millisecond

	// MinAudioFrameSize keeps room for strings, rectangles and event lists
	// on an audio port sized for few or no channels.
	MinAudioFrameSize = DefaultCallbackFrameSize
)

// Options configures the caller side of a session
type Options struct {
	WorkerPath string   // Worker executable
	PluginPath string   // Plugin binary the worker wraps
	Env        []string // Extra environment for the worker, "KEY=value"
	Launcher   Launcher // Spawns the worker; ExecLauncher when nil

	Host     abi.Host // Receives the plugin's callbacks
	Embedder Embedder // Embeds the worker's editor window; optional

	Logger   *slog.Logger // Caller-side logger; discards when nil
	LogLevel LogLevel     // Worker verbosity
	LogPath  string       // Worker log sink; standard error when empty

	ControlFrameSize  int           // Control port frame size, header included
	CallbackFrameSize int           // Callback port frame size, header included
	HandshakeTimeout  time.Duration // Bound on worker start-up and handshake
	PollInterval      time.Duration // Response and callback poll period
	ShutdownTimeout   time.Duration // Grace period before the worker is killed

	Version ProtocolVersion // Zero means CurrentVersion
}

// DefaultOptions returns the default caller configuration.
func DefaultOptions() Options {
	return Options{
		Launcher:          ExecLauncher{},
		LogLevel:          LogTrace,
		ControlFrameSize:  DefaultControlFrameSize,
		CallbackFrameSize: DefaultCallbackFrameSize,
		HandshakeTimeout:  DefaultHandshakeTimeout,
		PollInterval:      DefaultPollInterval,
		ShutdownTimeout:   DefaultShutdownTimeout,
		Version:           CurrentVersion,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Launcher == nil {
		o.Launcher = d.Launcher
	}
	if o.Logger == nil {
		o.Logger = discardLogger()
	}
	if o.ControlFrameSize <= 0 {
		o.ControlFrameSize = d.ControlFrameSize
	}
	if o.CallbackFrameSize <= 0 {
		o.CallbackFrameSize = d.CallbackFrameSize
	}
	if o.HandshakeTimeout <= 0 {
		o.HandshakeTimeout = d.HandshakeTimeout
	}
	if o.PollInterval <= 0 {
		o.PollInterval = d.PollInterval
	}
	if o.ShutdownTimeout <= 0 {
		o.ShutdownTimeout = d.ShutdownTimeout
	}
	if o.Version == (ProtocolVersion{}) {
		o.Version = d.Version
	}
	return o
}

// WorkerOptions configures the worker side of a session
type WorkerOptions struct {
	Loader  Loader       // Resolves the plugin entry point; GoPluginLoader when nil
	Windows WindowSystem // Hosts the editor window; optional
	Logger  *slog.Logger // Worker logger; discards when nil

	HandshakeTimeout  time.Duration // Wait for the caller's first request
	PollInterval      time.Duration // Control port poll period
	AudioPollInterval time.Duration // Audio port poll period
	LogQueueSize      int           // Audio thread log queue capacity

	Version ProtocolVersion // Zero means CurrentVersion
}

// DefaultWorkerOptions returns the default worker configuration.
func DefaultWorkerOptions() WorkerOptions {
	return WorkerOptions{
		Loader:            GoPluginLoader{},
		HandshakeTimeout:  DefaultHandshakeTimeout,
		PollInterval:      DefaultWorkerPollInterval,
		AudioPollInterval: DefaultAudioPollInterval,
		Version:           CurrentVersion,
	}
}

func (o WorkerOptions) withDefaults() WorkerOptions {
	d := DefaultWorkerOptions()
	if o.Loader == nil {
		o.Loader = d.Loader
	}
	if o.Logger == nil {
		o.Logger = discardLogger()
	}
	if o.HandshakeTimeout <= 0 {
		o.HandshakeTimeout = d.HandshakeTimeout
	}
	if o.PollInterval <= 0 {
		o.PollInterval = d.PollInterval
	}
	if o.AudioPollInterval <= 0 {
		o.AudioPollInterval = d.AudioPollInterval
	}
	if o.Version == (ProtocolVersion{}) {
		o.Version = d.Version
	}
	return o
}
