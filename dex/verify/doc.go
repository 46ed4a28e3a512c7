// Package verify checks that a DEX file image is structurally sound before
// anything trusts its contents.
//
// # Overview
//
// Verification runs in four stages and stops at the first failure:
//
//  1. Header: file size, checksum, endianness, header size and the placement
//     of every table the header describes.
//  2. Map: the map_list is sorted, in bounds, free of duplicates and lists
//     every table the header declares.
//  3. Per item: each map section is walked in offset order and every item is
//     decoded and checked on its own. Data items are recorded by offset.
//  4. Cross reference: tables are checked for sort order, descriptors and
//     shorties must agree, members must belong to the class that lists them,
//     and every offset must point at an item of the expected type.
//
// Nothing is read outside the input slice, whatever the input.
//
// # Quick Start
//
//	data, _ := os.ReadFile("classes.dex")
//	if err := verify.Verify(data, "classes.dex", verify.Options{VerifyChecksum: true}); err != nil {
//	    fmt.Println(err)
//	}
//
// Use New to inspect warnings after a run:
//
//	v := verify.New(data, "classes.dex", verify.Options{Logger: slog.Default()})
//	err := v.Verify()
//	for _, w := range v.Warnings() {
//	    fmt.Println("warning:", w)
//	}
//
// # ValidationError
//
// Failures are returned as *ValidationError:
//
//	type ValidationError struct {
//	    Location string   // name passed to Verify
//	    Category Category // bounds, alignment, order, reference, ...
//	    Offset   int      // cursor when the failure was detected
//	    Message  string
//	}
//
// Error() renders "Failure to verify dex file '<location>': <message>".
//
// # Compatibility Rules
//
// Some access-flag rules only became mandatory with default-method support
// (dex 037). Files older than that get a warning instead of a failure; the
// warning is logged and kept in Warnings().
package verify
