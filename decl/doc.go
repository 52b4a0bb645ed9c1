// Package decl models C declarations as trees and explains them in English.
//
// The tree is built by a front end (see package parse, or package treeio
// for trees stored in files). Explanations compose inside out, the way C
// declarators are read:
//
//	int *(*fp)(char);
//
// is
//
//	fp is a pointer to function(char) returning pointer to int
//
// The package never mutates a tree and keeps no shared state, so trees may
// be explained from several goroutines at once.
package decl
