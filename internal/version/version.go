package version

// Set at build time with
// -ldflags "-X product-catalog/internal/version.Version=... -X ...Commit=... -X ...BuildTime=..."
var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)
