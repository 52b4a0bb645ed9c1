// Package parse reads C declarations from preprocessed tokens and builds
// decl trees for them. Only declarations are understood: function bodies
// and initializers are skipped without being checked.
//
// Glossary:
//
// Declaration Specifiers
// ----------------------
//
// The storage class, qualifiers and base type at the start of a
// declaration, shared by all of its declarators.
//
// e.g.
// static const unsigned int a, *b;
// ^^^^^^^^^^^^^^^^^^^^^^^^^
//
// Declarator
// ----------
//
// A declarator is the part of a declaration that specifies
// the name that is to be introduced into the program.
//
// e.g.
// unsigned int a, *b, **c, *const*d *volatile*e ;
//              ^  ^^  ^^^  ^^^^^^^^ ^^^^^^^^^^^
//
// Abstract Declarator
// -------------------
//
// A declarator missing an identifier, found in parameter lists.
//
// e.g.
// int f(char *, int (*)(void));
//            ^      ^^^^^^^^^
package parse
