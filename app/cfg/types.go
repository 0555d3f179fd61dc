package cfg

type Cfg struct {
	// Storage configuration
	DBPath  string
	DataDir string

	// Application configuration
	DatasetsDir       string
	Port              string
	BaseUrl           string
	WorkerCount       int
	SchedulerInterval int
	APIAccessKey      string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
