package state

var (
	configNamespaceRoot        = []byte("config")
	listingsNamespaceRoot      = []byte("listings")
	listingIDsNamespaceRoot    = []byte("listingsid")
	confirmationsNamespaceRoot = []byte("confirms")
	viewingKeyNamespaceRoot    = []byte("viewing-keys")
)
