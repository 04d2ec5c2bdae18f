package irrigate

// Version is the engine's semantic version, reported by the irrigated
// CLI's version subcommand.
const Version = "0.1.0"
