// Package vm implements the virtual machine and assembler for seed-key
// algorithm programs.
//
// The machine consists of an instruction pointer (ip), six 32-bit
// general-purpose registers (r0-r5), an ALU with shift-carry tracking,
// a call/data stack, and conditional execution flags. The seed and mask
// inputs are exposed as read-only value sources; a program terminates
// by handing the derived key to a 'done' instruction, or by rejecting
// the input with 'fail'. A watchdog tick budget bounds every run.
//
// The assembler provides a fixed assembly language for the instruction
// set, supporting macros, labels, equates, and compile-time expression
// evaluation.
package vm
