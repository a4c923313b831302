package abi

// UnpackSetABI pulls the target account and the embedded schema out of a
// binary schema-update payload. A nil Def with no error means the account's
// schema was cleared.
func UnpackSetABI(data []byte) (string, *Def, error) {
	r := &reader{data: data}

	account, err := r.readUint(8)
	if err != nil {
		return "", nil, err
	}

	blob, err := r.readBytes()
	if err != nil {
		return "", nil, err
	}

	if len(blob) == 0 {
		return NameToString(account), nil, nil
	}

	def, err := UnpackDef(blob)
	if err != nil {
		return "", nil, err
	}

	return NameToString(account), def, nil
}

// UnpackNewAccount pulls the creator and the created account out of a
// binary account-creation payload. The authority structures that follow are
// not needed and left unparsed.
func UnpackNewAccount(data []byte) (string, string, error) {
	r := &reader{data: data}

	creator, err := r.readUint(8)
	if err != nil {
		return "", "", err
	}

	name, err := r.readUint(8)
	if err != nil {
		return "", "", err
	}

	return NameToString(creator), NameToString(name), nil
}
