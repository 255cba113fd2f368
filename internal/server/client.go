package server

// Client abstracts one simulator connection. Requests and responses are JSON
// documents; the transport decides how they are framed.
type Client interface {
	// ReadRequest blocks until the next request arrives. A malformed request is
	// reported with an error wrapping ErrBadRequest and leaves the connection usable.
	ReadRequest() (*Request, error)

	// WriteResponse sends a response to the client.
	WriteResponse(resp *Response) error

	// Close closes the connection.
	Close() error

	// RemoteAddr returns the client's address for logging.
	RemoteAddr() string
}
