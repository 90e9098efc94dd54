// Command gateway_key generates a fresh gateway key and prints both the
// plaintext (to hand to the adapter) and the bcrypt hash to store in
// GATEWAY_KEY_HASH. Pass an existing key as the first argument to only
// re-hash it.
package main

import (
	"fmt"
	"log"
	"os"

	"casino/internal/utils"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	var key string
	if len(os.Args) > 1 {
		key = os.Args[1]
	} else {
		key = utils.MustGenerateSecureCode()
		fmt.Println("gateway key: ", key)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal("Failed to hash gateway key:", err)
	}
	fmt.Println("GATEWAY_KEY_HASH=" + string(hash))
}
