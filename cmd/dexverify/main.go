// Command dexverify checks dex files and the classes*.dex entries of APKs
// for structural validity.
package main

func main() {
	execute()
}
