package flags

const Verbose = `verbose`
const Quiet = `quiet`
const Config = `config`
const LogLevel = `log-level`
const LogFormat = `log-format`
const LogOutput = `log-output`
const CatalogFile = `catalog-file`
const ProgressEvery = `progress-every`
const VerifyBeforeDelete = `verify-before-delete`
const Output = `output`
const Force = `force`
const DryRun = `dry-run`
const Tree = `tree`
const Duplicates = `duplicates`
const Delete = `delete`
const Yes = `yes`
const Name = `name`
const ReadOnly = `read-only`

// Keys of the configuration file and DUPCAT_* environment variables.
const (
	KeyCatalogFile        = `catalog_file`
	KeyProgressEvery      = `progress_every`
	KeyVerifyBeforeDelete = `verify_before_delete`
	KeyLogLevel           = `log_level`
	KeyLogFormat          = `log_format`
	KeyLogOutput          = `log_output`
	KeyVerbose            = `verbose`
	KeyQuiet              = `quiet`
)
