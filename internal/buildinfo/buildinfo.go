package buildinfo

// Service names this binary in version output and startup logs.
const Service = "frota-api"

var (
    Version = "dev"
    Commit  = ""
    BuiltAt = ""
)

func Info() map[string]string {
    return map[string]string{
        "service": Service,
        "version": Version,
        "commit":  Commit,
        "builtAt": BuiltAt,
    }
}
