package fbx

// loadProperties materializes the children of node into props.
// The first occurrence of a name wins, across both the generic children and the
// Properties70 table, so values assigned earlier (e.g. by OP connections) are kept.
func loadProperties(node *Node, props *Properties) {
	for _, child := range node.GetChildren() {
		if child.Name == "Properties70" {
			for _, p := range child.Children {
				if v := property70Value(p); !v.IsNone() {
					props.SetIfAbsent(SanitizeName(p.PropString(0)), v)
				}
			}
			continue
		}
		if v := nodeValue(child); !v.IsNone() {
			props.SetIfAbsent(SanitizeName(child.Name), v)
		}
	}
}

// nodeValue decodes a generic child: a table of its own children, or its first scalar.
func nodeValue(node *Node) Value {
	if len(node.Children) == 0 {
		return ValueOf(node.Prop(0))
	}
	table := NewProperties()
	for _, c := range node.Children {
		table.Append(SanitizeName(c.Name), nodeValue(c))
	}
	return TableValue(table)
}

// property70Value decodes a P: "name", "type", "label", "flags", values... entry.
func property70Value(node *Node) Value {
	switch node.PropString(1) {
	case "bool":
		return BoolValue(node.Prop(4).ToBool(false))
	case "int", "enum", "ULongLong":
		return IntValue(node.Prop(4).ToInt64(0))
	case "double", "Number", "FieldOfView":
		return NumberValue(node.Prop(4).ToFloat64(0))
	case "Color", "ColorRGB", "Vector3D", "Lcl Translation", "Lcl Rotation", "Lcl Scaling":
		return Vector3Value(node.Prop(4).ToFloat64(0), node.Prop(5).ToFloat64(0), node.Prop(6).ToFloat64(0))
	case "KString":
		return TextValue(node.Prop(4).ToString(""))
	}
	// Unknown tags keep the slot's own scalar type; strings stay text.
	return ValueOf(node.Prop(4))
}
