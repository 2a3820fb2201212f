package ritual

// Version is the release of the engine. Release builds set it with
// -ldflags "-X github.com/aretw0/ritual.Version=...".
var Version = "v0.1.0-dev"
