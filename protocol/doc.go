// Package protocol is the line codec for the accumulator service.
//
// One message per line. Decode works on a line whose trailing newline was
// already stripped by the transport; it trims surrounding whitespace itself.
// Requests are `OP <op> <operand>` and `GET`; responses are `OK`,
// `ERROR "<reason>"` and `VALUE <integer>`.
//
// Decode and Encode are pure.
package protocol
