package interfaces

// Service is implemented by every interface the daemon exposes to the
// outside world.
type Service interface {
	Start() error
	Stop()
}
