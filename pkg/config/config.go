package config

// this holds the resolved configuration values from CLI
var (
	ListenAddr          string  // listen address for the HTTP server
	LogLevel            string  // sets the log level (zap log level values)
	LogFormat           string  // text vs json
	LogFilter           string  // zapfilter rules for named loggers
	OpenF1URL           string  // base URL of the OpenF1 API
	FetchTimeout        string  // timeout for upstream telemetry requests
	ModelsDir           string  // directory for persisted model bundles
	RealDataWeight      float64 // sample weight for real telemetry rows
	SyntheticDataWeight float64 // sample weight for synthetic rows
	MinRealSamples      int     // below this, training uses a full synthetic batch
	TargetTotalSamples  int     // target row count for a hybrid dataset
	CorsOrigins         []string
)
