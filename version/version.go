package version

// These values are set at build time using, for example,
//
//   go build -ldflags "-X github.com/TeamNorCal/multiblink/version.GitHash=`git rev-parse HEAD` -X github.com/TeamNorCal/multiblink/version.BuildTime=`date -u +%FT%TZ`"
//
var (
	BuildTime string = "unknown"
	GitHash   string = "unknown"
)
