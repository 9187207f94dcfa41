package plist

import (
	"encoding/json"
	"fmt"
	"reflect"
)

//Dictionary Plist标准Map
type Dictionary map[string]interface{}

//Unmarshal 将字典内容填充到结构体或Map
func (m Dictionary) Unmarshal(v interface{}) error {
	val := reflect.ValueOf(v)
	if val.Kind() != reflect.Ptr || val.IsNil() {
		return fmt.Errorf("plist: Unmarshal requires a non-nil pointer, got %T", v)
	}
	return unmarshal(map[string]interface{}(m), val)
}

//String 以XML格式输出
func (m Dictionary) String() string {
	data, err := MarshalIndent(map[string]interface{}(m), XMLFormat, "\t")
	if err != nil {
		return fmt.Sprintf("plist.Dictionary(%v)", err)
	}
	return string(data)
}

//ConvertToJSON 转到json格式
func ConvertToJSON(data []byte) ([]byte, error) {
	var obj interface{}
	if _, err := Unmarshal(data, &obj); err != nil {
		return nil, err
	}
	return json.Marshal(obj)
}
