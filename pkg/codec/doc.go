// Package codec resolves request body decoders and response body encoders.
//
// A Decoders registry maps content-type patterns to DecoderFunc values. An
// Encoders registry maps a content-type pattern plus a Go type to an
// EncoderFunc. Chains layer registries so that expectation-scoped codecs are
// consulted before server-wide ones:
//
//	global := codec.DefaultDecoders()
//	local := codec.NewDecoders().Register("application/vnd.acme+json", codec.JSONDecoder)
//	chain := codec.NewDecoderChain(local, global)
//	v, err := chain.Decode(body, &codec.DecodingContext{ContentType: ct})
//
// Resolution never performs I/O.
package codec
