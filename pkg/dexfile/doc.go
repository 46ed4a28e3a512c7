/*
Package dexfile is the public entry point for checking dex files.

# Quick Start

Verify a single file on disk:

	res, err := dexfile.VerifyFile("classes.dex", nil)
	if err != nil {
	    log.Fatal(err) // I/O problem
	}
	if !res.OK() {
	    fmt.Println(res.Err)
	}

Verify every classes*.dex entry inside an APK:

	results, err := dexfile.VerifyArchive(ctx, "app.apk", &dexfile.Options{Jobs: 4})

# Results

A Result carries the outcome for one dex image. I/O problems (missing files,
unreadable archives) are returned as the function's error; a malformed dex
image is reported in Result.Err as a *verify.ValidationError so a batch run
can continue past it.

# Inspection

ReadInfo decodes the header and, when it is in range, the map list without
running the verifier. It is meant for the info command and for debugging
files that fail verification.
*/
package dexfile
