// Package luacell provides sandboxed Lua evaluation contexts with a typed
// value interchange format.
//
// A Context wraps one interpreter state behind a three-level scope chain: an
// immutable library scope assembled from allow-listed namespaces, a
// persistent session scope, and per-call scopes that vanish when a call
// ends. RunCode evaluates a submission interactively against the session
// scope, capturing an error per failed statement and carrying on. CallCode
// treats a submission as a function body: inputs are unpacked into a fresh
// call scope, the ret callable returns early, and evaluation stops at the
// first error. CodeDependencies reports the names a submission would need
// from outside its own bindings.
//
// Values cross the boundary as value.Value records carrying a type tag, a
// format and string content. The value package documents the tag set and
// the packing rules.
package luacell
