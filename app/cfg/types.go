package cfg

type Cfg struct {
	// HTTP server configuration
	Port    string
	BaseUrl string

	// Storage configuration
	DataDir string
	DBPath  string

	// Bulk processing configuration
	BatchSize    int
	FetchTimeout int // seconds

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
