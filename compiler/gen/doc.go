// Package gen generates value-object Go code from mapping definitions.
//
// For every type in a load.Config it emits one file containing the struct,
// a constructor honoring the declared constructor order, With methods that
// return modified copies, structural equality and a descriptor helper binding
// the type to its structured column layout. Files are rendered in parallel
// and formatted through goimports before they are written.
package gen
