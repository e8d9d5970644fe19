package protocol

// This package implements encoding and decoding of the packets that the
// Source RCON protocol family uses to carry console commands to a game
// server and command output back.
//
// Every packet, in either direction, has the same layout:
//
//   ```
//     <size int32> <id int32> <type int32> <body bytes> <0x00> <0x00>
//   ```
//
// All three integers are little-endian and signed. `size` counts
// everything after itself: id (4) + type (4) + body + the body's null
// terminator + the packet's trailing null, i.e. `len(body) + 10`.
// Deviating from this layout by a single byte breaks compatibility with
// the game-server software, so the encoder and decoder here are a wire
// contract, not an internal format.
//
// === Packet types
//
// - `PacketTypeAuth` (3)          - client sends the server password
// - `PacketTypeAuthResponse` (2)  - server acknowledges (or rejects) auth
// - `PacketTypeExecCommand` (2)   - client sends a console command
// - `PacketTypeResponseValue` (0) - server sends command output
//
// Auth response and exec command share the value 2; direction
// disambiguates them.
//
// === Request ids
//
// The id field correlates responses with requests. The server echoes
// the id of the request it is answering, with two special values:
//
// - id 0 with type `PacketTypeAuthResponse` signals that the
//   authentication handshake succeeded
// - id -1 signals that the password was rejected
//
// === Multi-packet responses
//
// Commands with large output (`cvarlist`, `status` on a full server)
// are answered with several `PacketTypeResponseValue` packets, and the
// protocol has no final-fragment marker. The client detects the end of
// a response by immediately following every command with an empty
// `PacketTypeResponseValue` packet carrying the same id. The server
// answers that mirrored packet with a fixed body, `SentinelBody`, after
// the real output. Receiving the sentinel for an id means every
// fragment for that id has arrived.
//
// === Framing
//
// TCP delivers an unstructured byte stream, so a single read can hold a
// partial packet, several packets, or both. `DecodeOne` takes a buffer
// and either slices one packet off the front or reports, via
// `ErrNeedMoreData`, that the buffer must grow first. `Reassembler`
// layers the carry-over bookkeeping on top so a connection read loop
// can feed it raw chunks in arrival order.
