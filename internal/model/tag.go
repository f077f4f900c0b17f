package model

import "fmt"

// IOPoint is one side (input or output) of a tag's PLC addressing.
type IOPoint struct {
	Type  string `json:"Type" yaml:"Type"`
	Block *int64 `json:"Block" yaml:"Block"`
	Word  *int64 `json:"Word" yaml:"Word"`
	Bit   *int64 `json:"Bit" yaml:"Bit"`
}

// TagPLC carries the controller facts of a tag.
type TagPLC struct {
	PLCNo  string  `json:"PLCNo" yaml:"PLCNo"`
	FC     *int64  `json:"FC" yaml:"FC"`
	Input  IOPoint `json:"Input" yaml:"Input"`
	Output IOPoint `json:"Output" yaml:"Output"`
}

// TagAlgorithms names the processing algorithms configured for a tag.
type TagAlgorithms struct {
	ConvAlg  string `json:"ConvAlg" yaml:"ConvAlg"`
	CalcAlg  *int64 `json:"CalcAlg" yaml:"CalcAlg"`
	BlockAlg string `json:"BlockAlg" yaml:"BlockAlg"`
}

// Tag is one entry of the tag dictionary read from the engineering database.
type Tag struct {
	ID         int64         `json:"Id" yaml:"Id"`
	Tag        string        `json:"Tag" yaml:"Tag"`
	Groups     string        `json:"Groups" yaml:"Groups"`
	DescEng    string        `json:"DescEng" yaml:"DescEng"`
	DescRus    string        `json:"DescRus" yaml:"DescRus"`
	Algorithms TagAlgorithms `json:"Algorithms" yaml:"Algorithms"`
	PLC        TagPLC        `json:"PLC" yaml:"PLC"`
	PLCInput   string        `json:"PLC_INP" yaml:"PLC_INP"`
	Mimics     []string      `json:"Mimics" yaml:"Mimics"`
}

// InputAddress renders the input location as %DB<block>.DBD<word>.
func InputAddress(block, word *int64) string {
	return fmt.Sprintf("%%DB%s.DBD%s", optInt(block), optInt(word))
}

func optInt(v *int64) string {
	if v == nil {
		return "None"
	}
	return fmt.Sprintf("%d", *v)
}
