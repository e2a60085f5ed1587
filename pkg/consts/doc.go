// Package consts holds file modes and well-known names shared across mach.
package consts
