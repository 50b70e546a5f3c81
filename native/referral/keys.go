package referral

var (
	tokenKeyPrefix = []byte("referral/token/")
	inUseKeyPrefix = []byte("referral/inuse/")
	countKeyPrefix = []byte("referral/count/")
)

func tokenKey(id TokenID) []byte {
	buf := make([]byte, len(tokenKeyPrefix)+len(id))
	copy(buf, tokenKeyPrefix)
	copy(buf[len(tokenKeyPrefix):], id[:])
	return buf
}

func inUseKey(addr [20]byte) []byte {
	buf := make([]byte, len(inUseKeyPrefix)+len(addr))
	copy(buf, inUseKeyPrefix)
	copy(buf[len(inUseKeyPrefix):], addr[:])
	return buf
}

func countKey(addr [20]byte) []byte {
	buf := make([]byte, len(countKeyPrefix)+len(addr))
	copy(buf, countKeyPrefix)
	copy(buf[len(countKeyPrefix):], addr[:])
	return buf
}
