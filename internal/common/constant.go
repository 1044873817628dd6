package common

// RequestIDHeaderName is the gRPC metadata key carrying the request id.
const RequestIDHeaderName = "x-request-id"

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "attendpass.CredentialService"
