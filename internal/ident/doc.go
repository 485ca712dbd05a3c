// Package ident owns the conversion context: the namespace UUID every emitted
// identifier derives from, the slug registry guaranteeing unique human-readable
// identifiers, and the temporary workspace the run assembles its output in.
// Identifiers are pure functions of (namespace, source id, role), so repeated
// runs over the same source produce byte-identical output ids.
package ident
