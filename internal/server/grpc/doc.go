// Package grpcserver serves sr.v1.Recorder and grpc.health.v1.Health.
//
// Record is a bidirectional stream: the session is named once in the
// sr-session metadata, every inbound message is one batch, and every reply
// is the log's committed size after that batch. ReadCurrent returns the
// same JSON document as GET /v1/sessions/{session}/segments. Recorder
// errors map onto gRPC codes (corrupt or undecodable logs are DataLoss).
//
//	s := grpcserver.New(rt, recorder.New(rt), logger)
//	_ = s.ListenAndServe(ctx, ":50051")
package grpcserver
